// Package ipc carries control messages from short-lived CLI invocations to
// the daemon over a Unix domain socket.
//
// Each connection delivers exactly one Message encoded in protobuf wire
// format, after which the client half-closes its side. The server reads
// connections one at a time in accept order and forwards decoded messages to
// the tick loop; nothing is written back to the client.
package ipc
