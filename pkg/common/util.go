package common

// CutString truncates long text, typically remote response bodies embedded
// in error messages and status details.
func CutString(input string, cut int) string {
	if len(input) > cut {
		return input[:cut] + " ..." // cut long text
	}
	return input
}
