package intel

import _ "embed"

//go:embed scenarios.yaml
var defaultCatalog []byte
