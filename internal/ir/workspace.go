package ir

// Background names the canvas backdrop pattern.
type Background string

const (
	BackgroundDots  Background = "dots"
	BackgroundGrid  Background = "grid"
	BackgroundPlain Background = "plain"
)

// Collaboration holds the collaboration feature flags of a workspace.
type Collaboration struct {
	Enabled bool `json:"enabled"`
	Cursors bool `json:"cursors"`
}

// Settings are the per-workspace canvas settings.
type Settings struct {
	GridSize      float64       `json:"grid_size"`
	SnapToGrid    bool          `json:"snap_to_grid"`
	Background    Background    `json:"background"`
	Collaboration Collaboration `json:"collaboration"`
}

// DefaultSettings returns the settings used when a workspace has none.
func DefaultSettings() Settings {
	return Settings{
		GridSize:      16,
		Background:    BackgroundDots,
		Collaboration: Collaboration{Cursors: true},
	}
}

// Workspace is the root container for a project's canvas.
type Workspace struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	Settings  Settings `json:"settings"`
}

// WorkspaceState is the bulk payload exchanged with durable storage when a
// workspace is opened. Viewport is nil when the user has none persisted.
type WorkspaceState struct {
	Workspace   Workspace    `json:"workspace"`
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Viewport    *Viewport    `json:"viewport,omitempty"`
}
