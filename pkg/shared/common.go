package shared

// Versions describes the build of the binary.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
}

// GenericResult is the outcome of a single command launch.
type GenericResult struct {
	Args    interface{} `json:"args"`
	Result  interface{} `json:"result"`
	Status  string      `json:"status"`
	Message string      `json:"message"`
}

// GenericLaunchesResult collects the launches of a command.
type GenericLaunchesResult struct {
	Launches []GenericResult `json:"launches"`
}
