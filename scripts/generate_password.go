// Command generate_password prints a bcrypt hash accepted by the user table.
//
//	go run scripts/generate_password.go [-cost 12] [-skip-policy] <password>
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/your-org/storefront/internal/pkg/auth"
)

func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	skipPolicy := flag.Bool("skip-policy", false, "hash without checking password strength")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Usage: go run scripts/generate_password.go [-cost 12] [-skip-policy] <password>")
	}
	password := flag.Arg(0)

	passwords := auth.NewPasswordManager(*cost)
	if !*skipPolicy {
		if err := passwords.ValidatePassword(password); err != nil {
			log.Fatalf("Password rejected: %v", err)
		}
	}

	hash, err := passwords.HashUnchecked(password)
	if err != nil {
		log.Fatal("Error generating hash: ", err)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed: ", err)
	}

	fmt.Printf("Hash: %s\n", hash)
}
