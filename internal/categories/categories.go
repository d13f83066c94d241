// Package categories imports all category packages to trigger their init() registration.
// Import this package for side effects only.
package categories

import (
	// Import all category packages to register them with the registry.
	_ "asterix_decoder/internal/categories/cat021"
	_ "asterix_decoder/internal/categories/cat062"
)
