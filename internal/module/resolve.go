package module

import "strings"

// ResolvePath resolves name against the title of the module requiring it.
//
// Names starting with "./" or "../" are resolved segment by segment against
// the directory part of from. Any other name is placed in the directory of
// from; with an empty from it is returned unchanged.
func ResolvePath(name, from string) string {
	if strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		root := strings.Split(from, "/")
		root = root[:len(root)-1]
		for _, seg := range strings.Split(name, "/") {
			switch seg {
			case "..":
				if len(root) > 0 {
					root = root[:len(root)-1]
				}
			case ".":
			default:
				root = append(root, seg)
			}
		}
		return strings.Join(root, "/")
	}
	if from == "" {
		return name
	}
	root := strings.Split(from, "/")
	return strings.Join(root[:len(root)-1], "/") + "/" + name
}
