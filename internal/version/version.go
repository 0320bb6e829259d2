package version

import (
	"encoding/json"
	"log"
	"os"
	"runtime"
)

type Info struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

// Load reads version.json from the working directory. A missing or broken
// file is not fatal; the server just reports 0.0.0.
func Load() Info {
	info := Info{Version: "0.0.0", Go: runtime.Version()}
	data, err := os.ReadFile("version.json")
	if err != nil {
		log.Printf("Version: could not read version.json: %v", err)
		return info
	}
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("Version: could not parse version.json: %v", err)
		info.Version = "0.0.0"
	}
	info.Go = runtime.Version()
	return info
}
