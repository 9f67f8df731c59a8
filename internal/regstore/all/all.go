// Package all registers every schema store backend with the regstore
// factory. Binaries blank-import it so kind selection stays a runtime
// concern.
package all

import (
	_ "callsift/internal/regstore/mssql"
	_ "callsift/internal/regstore/postgres"
	_ "callsift/internal/regstore/sqlite"
)
