package freeform

// Version is the release version reported by the CLI.
const Version = "0.3.0"
