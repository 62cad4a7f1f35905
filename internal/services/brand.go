package services

import (
	"fmt"
	"strings"
)

// Brand is the payment scheme a checkout is routed through. Each brand maps
// to a gateway entity identifier selecting the merchant profile that
// processes the request.
type Brand string

const (
	BrandDefault       Brand = "default"
	BrandDomesticDebit Brand = "domestic-debit"
	BrandWallet        Brand = "wallet"
)

// ParseBrand maps a caller-supplied brand string to a canonical Brand.
// Matching is case-insensitive and accepts the scheme names callers actually
// send ("mada", "applepay"). Unrecognized values fall through to
// BrandDefault; callers may pass untrusted strings.
func ParseBrand(s string) Brand {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mada", string(BrandDomesticDebit):
		return BrandDomesticDebit
	case "applepay", "apple-pay", string(BrandWallet):
		return BrandWallet
	default:
		return BrandDefault
	}
}

// BrandResolver translates between brands and gateway entity identifiers.
type BrandResolver struct {
	defaultID  string
	madaID     string
	applePayID string
}

// NewBrandResolver builds a resolver from configured entity identifiers. The
// default entity id is mandatory; brand-specific ids are optional and only
// needed when the matching brand is used.
func NewBrandResolver(defaultID, madaID, applePayID string) (*BrandResolver, error) {
	if defaultID == "" {
		return nil, fmt.Errorf("%w: default entity id is required", ErrConfiguration)
	}

	return &BrandResolver{
		defaultID:  defaultID,
		madaID:     madaID,
		applePayID: applePayID,
	}, nil
}

// EntityID returns the gateway entity identifier for the given brand. The
// domestic debit and wallet brands override the default id; every other brand
// uses the default unchanged.
func (r *BrandResolver) EntityID(brand Brand) (string, error) {
	switch brand {
	case BrandDomesticDebit:
		if r.madaID == "" {
			return "", fmt.Errorf("%w: mada entity id is not configured", ErrConfiguration)
		}
		return r.madaID, nil
	case BrandWallet:
		if r.applePayID == "" {
			return "", fmt.Errorf("%w: apple pay entity id is not configured", ErrConfiguration)
		}
		return r.applePayID, nil
	default:
		return r.defaultID, nil
	}
}

// BrandForEntityID resolves an entity identifier on a gateway payload back to
// a brand. The domestic debit id is checked before the wallet id; anything
// else (including the default id) resolves to BrandDefault. Because
// unrecognized brands also route through the default entity id, this reverse
// mapping is not invertible for BrandDefault.
func (r *BrandResolver) BrandForEntityID(entityID string) Brand {
	if r.madaID != "" && entityID == r.madaID {
		return BrandDomesticDebit
	}

	if r.applePayID != "" && entityID == r.applePayID {
		return BrandWallet
	}

	return BrandDefault
}
