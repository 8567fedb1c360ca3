package donation

import (
	"fmt"
	"math/rand"
	"time"
)

const referencePrefix = "DON"

// NewMerchantReference generates a merchant reference of the form
// DON_<unix-timestamp>_<4 digits>. Global uniqueness is backed by the unique
// index on merchant_reference: a collision fails the insert instead of
// silently reusing a reference.
func NewMerchantReference() string {
	return fmt.Sprintf("%s_%d_%d", referencePrefix, time.Now().Unix(), 1000+rand.Intn(9000))
}
