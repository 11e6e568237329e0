package domain

import "sort"

// Authority is a named permission carried in access tokens.
type Authority string

const (
	AuthorityReadAccess    Authority = "READ_ACCESS"
	AuthorityProcessOrders Authority = "PROCESS_ORDERS"
	AuthorityWriteImages   Authority = "WRITE_IMAGES"
	AuthorityWriteShipping Authority = "WRITE_SHIPPING"
	AuthorityWriteProducts Authority = "WRITE_PRODUCTS"
	AuthorityWriteCheckout Authority = "WRITE_CHECKOUT"
	AuthorityWriteUsers    Authority = "WRITE_USERS"
	AuthorityConfig        Authority = "CONFIG"
)

var catalog = [...]Authority{
	AuthorityReadAccess,
	AuthorityProcessOrders,
	AuthorityWriteImages,
	AuthorityWriteShipping,
	AuthorityWriteProducts,
	AuthorityWriteCheckout,
	AuthorityWriteUsers,
	AuthorityConfig,
}

// Catalog returns every authority known to this build.
func Catalog() []Authority {
	out := make([]Authority, len(catalog))
	copy(out, catalog[:])
	return out
}

// Known reports whether a belongs to the catalog.
func (a Authority) Known() bool {
	for _, known := range catalog {
		if a == known {
			return true
		}
	}
	return false
}

func (a Authority) String() string {
	return string(a)
}

// AuthoritySet is an unordered, deduplicated collection of authorities.
// Entries outside the catalog are kept as-is.
type AuthoritySet map[Authority]struct{}

// NewAuthoritySet builds a set, dropping empty entries.
func NewAuthoritySet(authorities ...Authority) AuthoritySet {
	set := make(AuthoritySet, len(authorities))
	for _, a := range authorities {
		if a == "" {
			continue
		}
		set[a] = struct{}{}
	}
	return set
}

// AuthoritySetFromStrings is NewAuthoritySet for raw claim values.
func AuthoritySetFromStrings(values []string) AuthoritySet {
	set := make(AuthoritySet, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[Authority(v)] = struct{}{}
	}
	return set
}

// Has reports whether a is in the set.
func (s AuthoritySet) Has(a Authority) bool {
	_, ok := s[a]
	return ok
}

// Len returns the number of distinct authorities.
func (s AuthoritySet) Len() int {
	return len(s)
}

// Slice returns the authorities sorted by name.
func (s AuthoritySet) Slice() []Authority {
	out := make([]Authority, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted authority names.
func (s AuthoritySet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, a := range s.Slice() {
		out = append(out, string(a))
	}
	return out
}

// Equal reports whether both sets hold the same authorities.
func (s AuthoritySet) Equal(other AuthoritySet) bool {
	if len(s) != len(other) {
		return false
	}
	for a := range s {
		if !other.Has(a) {
			return false
		}
	}
	return true
}
