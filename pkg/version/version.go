package version

// Version is set during build time via ldflags
var Version = "dev"
