package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReferenceNumber returns the human-facing booking reference, for example
// LAB-202609-7F3A2C. The reference is assigned once at submission and never
// changes afterwards; the unique index on the column is the backstop against
// the (implausible) collision.
func NewReferenceNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("LAB-%s-%s", now.Format("200601"), strings.ToUpper(fmt.Sprintf("%x", id[0:3])))
}
