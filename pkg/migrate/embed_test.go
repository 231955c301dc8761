package migrate

import "testing"

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := validateFS(embedded, embeddedDir); err != nil {
		t.Fatalf("embedded migrations should validate: %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Add Contact Notes!": "add_contact_notes",
		"  users--index ":    "users_index",
		"café":               "caf",
		"!!!":                "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
