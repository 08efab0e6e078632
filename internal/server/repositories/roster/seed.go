package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/attendance/internal/server/models"
)

// SeedFile is the JSON shape of a roster file:
//
//	{"sections": [{"id": "5b", "name": "5-B", "students": [{"id": "s1", "name": "Asha", "roll_no": "1"}]}]}
type SeedFile struct {
	Sections []SeedSection `json:"sections"`
}

type SeedSection struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Students []SeedStudent `json:"students"`
}

type SeedStudent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
}

// Seed reads a roster file from r and upserts every section and student into
// repo. It returns the number of students written.
func Seed(ctx context.Context, repo Repository, r io.Reader) (int, error) {
	var f SeedFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return 0, fmt.Errorf("decode roster: %w", err)
	}

	n := 0
	for _, sec := range f.Sections {
		if sec.ID == "" {
			return n, fmt.Errorf("roster: section without id")
		}
		if err := repo.UpsertSection(ctx, &models.Section{ID: sec.ID, Name: sec.Name}); err != nil {
			return n, fmt.Errorf("seed section %s: %w", sec.ID, err)
		}
		for _, st := range sec.Students {
			if st.ID == "" {
				return n, fmt.Errorf("roster: student without id in section %s", sec.ID)
			}
			student := &models.Student{ID: st.ID, SectionID: sec.ID, Name: st.Name, RollNo: st.RollNo}
			if err := repo.UpsertStudent(ctx, student); err != nil {
				return n, fmt.Errorf("seed student %s: %w", st.ID, err)
			}
			n++
		}
	}
	return n, nil
}
