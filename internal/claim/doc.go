// Package claim implements the claim workflow for posted items.
//
// An item is open until someone submits a claim request, pending while a
// claimant is recorded, and resolved once the poster approves. Denial
// clears the claimant and reopens the item.
//
// Two rules govern who the claimant is:
//
//   - On submission the first requester wins: the claimant is only set
//     when none is recorded, using a compare-and-set in the store.
//   - On approval the latest requester wins: the poster approves whoever
//     sent the most recent message addressed to them, which need not be
//     the recorded claimant.
//
// Every accepted transition is handed to a Notifier after it commits.
package claim
