package blockload

import "errors"

// Sentinel errors for engine operations.
var (
	ErrDescriptorNotFound  = errors.New("blockload: descriptor not found")
	ErrModuleNotFound      = errors.New("blockload: module not found")
	ErrModuleFailed        = errors.New("blockload: module load failed")
	ErrFragmentUnavailable = errors.New("blockload: fragment unavailable")
	ErrFragmentPath        = errors.New("blockload: fragment placeholder has no path")
	ErrInvalidSelector     = errors.New("blockload: invalid selector")
	ErrDuplicateSelector   = errors.New("blockload: duplicate selector")
	ErrRegistryFrozen      = errors.New("blockload: registry is frozen")
	ErrAlreadyHydrated     = errors.New("blockload: document already hydrated")
	ErrClosed              = errors.New("blockload: engine closed")
)

// IsFragmentUnavailable checks if err reports a missing or failed fragment.
func IsFragmentUnavailable(err error) bool {
	return errors.Is(err, ErrFragmentUnavailable)
}

// IsModuleError checks if err is a module lookup or load failure.
func IsModuleError(err error) bool {
	return errors.Is(err, ErrModuleNotFound) || errors.Is(err, ErrModuleFailed)
}

// IsRegistryError checks if err was raised while building the registry.
func IsRegistryError(err error) bool {
	return errors.Is(err, ErrInvalidSelector) ||
		errors.Is(err, ErrDuplicateSelector) ||
		errors.Is(err, ErrRegistryFrozen)
}
