package viewer

import "strings"

// patchFor turns a dotted settings path such as "collision.frameSkip.enabled"
// into the nested map expected by a settings patch.
func patchFor(path string, value any) map[string]any {
	keys := strings.Split(path, ".")
	patch := map[string]any{keys[len(keys)-1]: value}
	for i := len(keys) - 2; i >= 0; i-- {
		patch = map[string]any{keys[i]: patch}
	}
	return patch
}
