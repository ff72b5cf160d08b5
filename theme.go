package tutor

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg    int // User message accent
	Error      int // Error messages and stream annotations
	Success    int // Upload confirmations
	Muted      int // Status bar, placeholders, code gutters
	Accent     int // Headings, links
	Department int // Department badge in the status line
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:    4,
		Error:      1,
		Success:    2,
		Muted:      8,
		Accent:     5,
		Department: 6,
	}
}
