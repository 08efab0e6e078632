package models

// Section is a class group owned by the school administration.
type Section struct {
	ID   string
	Name string
}

// Student is a roster entry. RollNo may be empty.
type Student struct {
	ID        string
	SectionID string
	Name      string
	RollNo    string
}

// Candidate is one student proposed by the face matcher for a capture.
type Candidate struct {
	StudentID  string
	Name       string
	Confidence float64
}
