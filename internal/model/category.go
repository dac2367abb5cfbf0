package model

import "fmt"

// Category groups notifications for preference toggles.
type Category string

const (
	CategoryMessage     Category = "message"
	CategoryOffer       Category = "offer"
	CategoryTransaction Category = "transaction"
	CategorySystem      Category = "system"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryMessage, CategoryOffer, CategoryTransaction, CategorySystem:
		return c, nil
	}
	return "", fmt.Errorf("unknown notification category %q", s)
}
