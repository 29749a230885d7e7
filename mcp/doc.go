// Package mcp serves gitgate's tools over the Model Context Protocol:
// newline-delimited JSON-RPC 2.0 on stdin and stdout.
//
// # Message Flow
//
//	agent
//	    ↓ (one JSON object per line on stdin)
//	Server.Run
//	    ↓ (closed method set: initialize, tools/list, tools/call, ping, ...)
//	toolset.lookup → schema validation (gojsonschema) → service.Service
//	    ↓
//	journal.Store.AppendOperation (every exchange, success or failure)
//	    ↓
//	response line on stdout
//
// # Tool Results
//
// A tool's result is returned as a single text content block holding
// indented JSON. A refused push is not a protocol error: it is a normal
// result flagged isError whose payload has code CHANGES_NOT_REVIEWED and
// tells the agent which tool to call next.
//
// # Errors
//
// Failures are mapped to JSON-RPC errors in one place (rpcErrorFrom). Besides
// the standard codes the server uses -32001 RepositoryNotFound, -32002
// CommandFailed, -32003 CommandTimeout, -32004 SpawnError and -32005
// PushFailed. The data member always carries a string code, plus stdout,
// stderr and exit_code for command failures.
//
// Diagnostics go to the logger, never to stdout, which carries only
// protocol messages.
package mcp
