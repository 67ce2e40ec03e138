//go:build production

package auth

const BypassCode = ""

const bypassCompiled = false
