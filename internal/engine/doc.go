// Package engine runs a canvas editing session.
//
// A Session owns one workspace's replicated document, read model, gesture
// controller, command history and persistence bridge. Input events and
// commands are enqueued from any goroutine and applied one at a time by a
// single Run loop, so every state change happens on one goroutine in a
// deterministic order.
//
// Event Processing Flow:
//  1. Enqueue stamps the event with the next Clock value and queues it.
//  2. Run (or Drain) dequeues events in FIFO order.
//  3. Input events go to the gesture controller; commands act on the store
//     and history directly.
//  4. The store mirrors writes into the document; the bridge observes the
//     document and saves changed entities after a quiet period.
//
// Mount and Unmount model the host tearing the view down and building it
// again. Unmount flushes pending saves and destroys the document; Mount
// builds a fresh document past the old clock, reloads it from the update
// log or durable tables, and rebinds the store. The read model and the
// history survive a remount.
package engine
