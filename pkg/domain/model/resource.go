package model

// Resource is one row of the workbook table: a logical name, the
// environment variable holding its share link, and the file it is
// mirrored to inside the data directory.
type Resource struct {
	Name     string // Logical name, used in logs and the summary
	EnvVar   string // Environment variable holding the share link
	Filename string // Destination filename inside the data directory
}

// DefaultResources returns the built-in workbook table. Adding a
// workbook means adding a row here (or in a resources TOML file),
// not changing any logic.
func DefaultResources() []Resource {
	return []Resource{
		{Name: "solar-lab-tests", EnvVar: "SOLAR_LAB_TESTS_URL", Filename: "Solar_Lab_Tests.xlsx"},
		{Name: "line-trials", EnvVar: "LINE_TRIALS_URL", Filename: "Line_Trials.xlsx"},
		{Name: "certifications", EnvVar: "CERTIFICATIONS_URL", Filename: "Certifications.xlsx"},
		{Name: "chamber-tests", EnvVar: "CHAMBER_TESTS_URL", Filename: "Chamber_Tests.xlsx"},
		{Name: "rnd-todos", EnvVar: "RND_TODOS_URL", Filename: "RND_Todos.xlsx"},
		{Name: "daily-updates", EnvVar: "DAILY_UPDATES_URL", Filename: "Daily_Updates.xlsx"},
		{Name: "spare-parts-inventory", EnvVar: "SPARE_PARTS_INVENTORY_URL", Filename: "Spare_Parts_Inventory.xlsx"},
	}
}
