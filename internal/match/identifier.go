package match

import (
	"strings"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// ExtractIdentifierValues returns the values of identifiers whose type
// matches any of typeMatchers, case-insensitively and by substring
// ("Barcode (Text)" matches "barcode"). Empty values are dropped; source
// order is preserved.
func ExtractIdentifierValues(identifiers []model.ReleaseIdentifier, typeMatchers ...string) []string {
	var values []string
	for _, id := range identifiers {
		idType := strings.ToLower(id.Type)
		for _, m := range typeMatchers {
			if strings.Contains(idType, strings.ToLower(m)) {
				if id.Value != "" {
					values = append(values, id.Value)
				}
				break
			}
		}
	}
	return values
}
