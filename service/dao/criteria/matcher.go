package criteria

import (
	"github.com/termscript/termscript/service/dao"
)

func FilterByShell(shell string, parameters []*dao.Parameter) bool {
	switch len(parameters) {
	case 0:
		return true
	case 1:
		if parameters[0].Name == "Shell" {
			switch actual := parameters[0].Value.(type) {
			case string:
				return shell == actual
			case []string:
				for _, s := range actual {
					if shell == s {
						return true
					}
				}
				return false
			}
		}
	}
	return true
}
