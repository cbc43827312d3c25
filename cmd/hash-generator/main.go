// Command hash-generator prints bcrypt hashes for seeding users directly into
// a database. Passwords are read from the arguments, or a default set is used.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/natours-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", auth.DefaultBcryptCost, "bcrypt cost factor")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		passwords = []string{
			"test1234",
			"pass1234",
			"test@#$%^&*()",
			"тест12345",
		}
	}

	hasher := auth.NewBcrypt(*cost)
	failed := false
	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating hash for %s: %v\n", password, err)
			failed = true
			continue
		}
		fmt.Printf("Password: %s\nHash: %s\n\n", password, hash)
	}
	if failed {
		os.Exit(1)
	}
}
