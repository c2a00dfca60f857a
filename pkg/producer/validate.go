package producer

import (
	"fmt"
	"slices"

	"github.com/iacexport/iacexport/internal/errors"
)

type pathGroup struct {
	name  string
	paths []string
}

// validatePathGroups fails when a path is declared in more than one group.
// Every overlapping pair is reported.
func validatePathGroups(groups []pathGroup) error {
	var errs []error
	for i := 0; i < len(groups)-1; i++ {
		for j := i + 1; j < len(groups); j++ {
			overlap := intersect(groups[i].paths, groups[j].paths)
			if len(overlap) == 0 {
				continue
			}
			errs = append(errs, errors.Configurationf(
				"declare each path in one section only",
				"found overlap of paths %q between %s %q and %s %q",
				overlap, groups[i].name, groups[i].paths, groups[j].name, groups[j].paths,
			))
		}
	}
	return errors.Join(errs...)
}

func intersect(a, b []string) []string {
	var out []string
	for _, p := range a {
		if slices.Contains(b, p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

func annotationGroupName(token string) string {
	return fmt.Sprintf("annotations[%s]", token)
}
