package permission

import (
	"fmt"
	"reflect"
	"strings"
)

// Role is the canonical account role used by every gate. Raw role values are
// parsed into it exactly once, at ingestion; gates never re-probe attributes.
type Role string

const (
	RoleUnknown  Role = ""
	RoleCustomer Role = "customer"
	RoleBusiness Role = "business"
)

// Accepted representations per role. Legacy encodings stored roles as short
// strings or integer codes, so both sets are matched.
var (
	roleStrings = map[Role][]string{
		RoleCustomer: {"customer"},
		RoleBusiness: {"business", "biz"},
	}
	roleNumbers = map[Role][]int64{
		RoleCustomer: {},
		RoleBusiness: {2},
	}
)

// probeFields is the fixed ordered list of exported field names probed on
// enum-like role values.
var probeFields = []string{"Name", "Label", "Value", "Code", "Slug", "Key", "Type"}

// Matches reports whether candidate represents role under any supported
// encoding: a plain string (trimmed, case-insensitive), an integer code, an
// enum-like struct carrying the value in a well-known field, or, as a last
// resort, its stringification. A nil or unresolvable candidate never matches.
func Matches(candidate any, role Role) bool {
	return matches(candidate, roleStrings[role], roleNumbers[role])
}

func matches(candidate any, accepted []string, acceptedNumbers []int64) bool {
	if candidate == nil {
		return false
	}

	switch v := candidate.(type) {
	case string:
		return containsNormalized(accepted, v)
	case Role:
		return containsNormalized(accepted, string(v))
	}

	rv := reflect.ValueOf(candidate)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return containsNormalized(accepted, rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return containsNumber(acceptedNumbers, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return containsNumber(acceptedNumbers, int64(rv.Uint()))
	case reflect.Struct:
		for _, name := range probeFields {
			field := rv.FieldByName(name)
			if !field.IsValid() || !field.CanInterface() {
				continue
			}
			if matches(field.Interface(), accepted, acceptedNumbers) {
				return true
			}
		}
	}

	// Best-effort stringification for anything else (fmt.Stringer included).
	return containsNormalized(accepted, fmt.Sprint(candidate))
}

// ResolveRole parses an arbitrary role value into the canonical Role.
// Unresolvable values degrade to RoleUnknown, never to a grant.
func ResolveRole(v any) Role {
	for _, role := range []Role{RoleCustomer, RoleBusiness} {
		if Matches(v, role) {
			return role
		}
	}
	return RoleUnknown
}

// RoleOf resolves a user's role from its direct role value, falling back to
// the role value on an attached profile. First match wins.
func RoleOf(direct, profileFallback any) Role {
	if r := ResolveRole(direct); r != RoleUnknown {
		return r
	}
	return ResolveRole(profileFallback)
}

func containsNormalized(accepted []string, v string) bool {
	n := strings.ToLower(strings.TrimSpace(v))
	if n == "" {
		return false
	}
	for _, a := range accepted {
		if n == a {
			return true
		}
	}
	return false
}

func containsNumber(accepted []int64, v int64) bool {
	for _, a := range accepted {
		if v == a {
			return true
		}
	}
	return false
}
