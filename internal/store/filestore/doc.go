// Package filestore serves tasks, employees and meetings from a single
// dataset file.
//
// The dataset format follows the file extension: .yaml and .yml are decoded
// with gopkg.in/yaml.v3 and .toml with BurntSushi/toml. Reads reload the
// file when its modification time changes, so a long-running watcher sees
// edits made by other processes. Writes take an flock(2) lock beside the
// dataset, re-read the latest contents, and replace the file atomically.
package filestore
