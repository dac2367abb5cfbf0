// Command vapid-keys prints a fresh VAPID key pair for VAPID_PUBLIC_KEY and
// VAPID_PRIVATE_KEY.
package main

import (
	"fmt"
	"log"

	"github.com/brrowapp/brrow-backend/internal/push"
)

func main() {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		log.Fatalf("generate keys: %v", err)
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
}
