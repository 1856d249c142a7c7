package enums

import "fmt"

// DesignOrderStatus tracks a finalized design order record.
type DesignOrderStatus string

const (
	DesignOrderStatusFinalized DesignOrderStatus = "finalized"
	DesignOrderStatusCancelled DesignOrderStatus = "cancelled"
)

var validDesignOrderStatuses = []DesignOrderStatus{
	DesignOrderStatusFinalized,
	DesignOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (c DesignOrderStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known DesignOrderStatus.
func (c DesignOrderStatus) IsValid() bool {
	for _, candidate := range validDesignOrderStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseDesignOrderStatus converts raw input into a DesignOrderStatus.
func ParseDesignOrderStatus(value string) (DesignOrderStatus, error) {
	for _, candidate := range validDesignOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design order status %q", value)
}
