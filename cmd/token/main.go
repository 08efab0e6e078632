// Command token mints an access token for a teacher using the server's
// secret key and token validity settings.
//
//	token -teacher t-42 -s "$SECRET" -t 720
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/attendance/internal/flagx"
	"github.com/dmitrijs2005/attendance/internal/server/auth"
	"github.com/dmitrijs2005/attendance/internal/server/config"
)

func main() {
	args := os.Args[1:]

	var teacherID string
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	fs.StringVar(&teacherID, "teacher", "", "teacher id to embed in the token")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-teacher"}))

	if teacherID == "" {
		log.Fatal("-teacher is required")
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.SecretKey == "" {
		log.Fatal("no secret key configured (-s or ATTENDANCE_SECRET_KEY)")
	}

	token, err := auth.GenerateToken(teacherID, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
