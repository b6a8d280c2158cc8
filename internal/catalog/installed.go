package catalog

import (
	"strings"

	"localchat/pkg/types"
)

// matchesLocal reports whether the catalog entry name refers to the
// installed model local. The match is loose: exact, local containing name,
// or name containing the local base (the part before ":").
func matchesLocal(name string, local types.LocalModelRecord) bool {
	if local.Name == name || strings.Contains(local.Name, name) {
		return true
	}
	base, _, _ := strings.Cut(local.Name, ":")
	return base != "" && strings.Contains(name, base)
}

// MarkInstalled sets Installed and Modified on each model from one inventory
// snapshot. The first matching local record supplies Modified.
func MarkInstalled(models []types.ModelDescriptor, locals []types.LocalModelRecord) {
	for i := range models {
		models[i].Installed = false
		models[i].Modified = nil
		for _, l := range locals {
			if !matchesLocal(models[i].Name, l) {
				continue
			}
			models[i].Installed = true
			if !l.ModifiedAt.IsZero() {
				t := l.ModifiedAt
				models[i].Modified = &t
			}
			break
		}
	}
}
