// Package node loads sub-build artifacts into a Node.js process and renders
// pages through it. The process runs an embedded harness that serves
// JSON over a unix socket.
package node
