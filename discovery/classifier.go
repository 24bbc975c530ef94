package discovery

import (
	"fmt"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// annotationRoles maps the exact annotation text to the role the function
// plays in its module. Annotations must match exactly; anything else is
// treated as an ordinary comment and ignored.
var annotationRoles = map[string]types.Role{
	"#[test]":        types.RoleTest,
	"#[ignore]":      types.RoleSkip,
	"#[before-each]": types.RoleBeforeEach,
	"#[before-all]":  types.RoleBeforeAll,
	"#[after-each]":  types.RoleAfterEach,
	"#[after-all]":   types.RoleAfterAll,
}

// Classify maps a raw annotation line to its canonical role. The second
// return is false when the annotation is not recognized.
func Classify(annotation string) (types.Role, bool) {
	role, ok := annotationRoles[annotation]
	return role, ok
}

// DuplicateHookError reports a module that declares the same lifecycle hook
// more than once. Hooks are singletons per module; a second declaration is
// ambiguous and the module is rejected rather than silently picking one.
type DuplicateHookError struct {
	File   string
	Role   types.Role
	First  string
	Second string
}

func (e *DuplicateHookError) Error() string {
	return fmt.Sprintf("module %s declares %s twice (%q and %q)",
		types.ModuleName(e.File), e.Role, e.First, e.Second)
}

// BuildDescriptor folds a module's annotated functions into its test
// descriptor. Unannotated and unrecognized functions are dropped. Tests and
// skips keep their source order. A duplicate singleton hook yields a
// DuplicateHookError and the partially built descriptor is discarded.
func BuildDescriptor(file string, funcs []types.AnnotatedFunction) (types.Descriptor, error) {
	d := types.NewDescriptor(file)
	for _, fn := range funcs {
		role, ok := Classify(fn.Annotation)
		if !ok {
			continue
		}
		switch role {
		case types.RoleTest:
			d.Tests = append(d.Tests, fn.Name)
		case types.RoleSkip:
			d.Skips = append(d.Skips, fn.Name)
		case types.RoleBeforeEach:
			if err := setHook(&d.BeforeEach, file, role, fn.Name); err != nil {
				return types.Descriptor{}, err
			}
		case types.RoleBeforeAll:
			if err := setHook(&d.BeforeAll, file, role, fn.Name); err != nil {
				return types.Descriptor{}, err
			}
		case types.RoleAfterEach:
			if err := setHook(&d.AfterEach, file, role, fn.Name); err != nil {
				return types.Descriptor{}, err
			}
		case types.RoleAfterAll:
			if err := setHook(&d.AfterAll, file, role, fn.Name); err != nil {
				return types.Descriptor{}, err
			}
		}
	}
	return d, nil
}

func setHook(slot *string, file string, role types.Role, name string) error {
	if *slot != "" {
		return &DuplicateHookError{File: file, Role: role, First: *slot, Second: name}
	}
	*slot = name
	return nil
}
