// Package imports registers every tool with the registry through blank imports
package imports

import (
	_ "github.com/lumenkit/creative-toolkit/internal/tools/codetools"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/colorpalette"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/textanalyzer"
	_ "github.com/lumenkit/creative-toolkit/internal/tools/utilities/toolhelp"
)
