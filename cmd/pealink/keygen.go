package main

import (
	"fmt"

	"github.com/revittco/pealink/internal/secrets"
)

// cmdKeygen writes a new age identity for sealing exports.
func cmdKeygen(args []string) error {
	path := defaultDataPath("pealink.age")
	if v, ok := flagValue(args, "out"); ok {
		path = v
	}
	enc, err := secrets.GenerateKeyFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("Age key created: %s\n", path)
	fmt.Printf("Public key: %s\n", enc.Recipient())
	fmt.Printf("Set PEALINK_AGE_KEY=%s to seal exports.\n", path)
	return nil
}
