// Package logx configures pactnotify's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, so it can be shipped as-is
//   - Runtime level/sink changes possible without re-plumbing loggers
package logx
