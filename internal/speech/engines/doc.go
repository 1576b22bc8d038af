// Package engines provides the concrete speech engines: sapi (Windows
// System.Speech), say (macOS), espeak and piper (rendered to PCM and played
// through oto), a mock for tests and demos, and the fallback and null
// wrappers used when an engine cannot start.
package engines
