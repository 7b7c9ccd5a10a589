// Package builders provides fluent transaction builder helpers for testing.
//
// Builders produce fully formed transactions with the fixed default fee and a
// computed id, so they pass structural validation and id verification.
//
// # Accounts
//
// Accounts are derived deterministically from a name:
//
//	alice := NewAccount("alice")
//	alice.Address   // "<digits>L"
//
// # Send
//
//	Send(alice, bob, LSK(10)).Build()
//
// # Applications
//
//	RegisterDapp(alice, "Guestbook").Build()
//	RegisterDapp(alice, "Guestbook").Link("https://example.com/gb.zip").Icon("https://example.com/gb.png").Build()
//
// # Transfers
//
//	InTransfer(alice, dappID, LSK(5)).Build()
//	OutTransfer(alice, dappID, LSK(1)).Recipient(bob.Address).Build()
//	OutTransfer(alice, dappID, LSK(1)).Withdrawal(dappID, "1234").Build()
//
// # Wire form
//
// JSON renders the built transaction in its wire shape; Mutate edits the wire
// JSON before submission to exercise structural validation:
//
//	raw := InTransfer(alice, dappID, 1).Mutate("asset.inTransfer.dappId", 1)
package builders
