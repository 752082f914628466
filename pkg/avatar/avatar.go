// Package avatar builds deterministic avatar image URLs for users and agents
// that have no uploaded picture.
package avatar

import (
	"fmt"
	"net/url"
)

// Variant selects the avatar art style.
type Variant string

const (
	VariantInitials      Variant = "initials"
	VariantBotttsNeutral Variant = "botttsNeutral"
)

const baseURL = "https://api.dicebear.com/9.x"

// URI returns a seeded avatar image URL. The same seed and variant always
// produce the same image.
func URI(seed string, variant Variant) string {
	return fmt.Sprintf("%s/%s/svg?seed=%s", baseURL, variant, url.QueryEscape(seed))
}
