//go:build !production

package auth

// BypassCode is accepted for every email when testing mode is on. Builds
// with the production tag compile it out.
const BypassCode = "000000"

const bypassCompiled = true
