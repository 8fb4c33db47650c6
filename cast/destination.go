package cast

import (
	"strings"

	"github.com/viant/afs/url"
)

// Extension is the file extension recordings are written with.
const Extension = ".cast"

// DestinationURL maps a script name to its recording destination under
// baseURL. A name carrying another extension has it replaced.
func DestinationURL(baseURL, name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	return url.Join(baseURL, name+Extension)
}
