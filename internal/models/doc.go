// Package models defines the core domain models for lunchtab.
//
// # Models
//
//   - Menu: the single "today" menu shared by everyone (restaurant info + priced items)
//   - Order: one user's order against a menu item, with the price captured at order time
//   - User: a participant identified by display name, carrying a running balance
//   - Settlement: an audit record of an admin reducing a user's balance
//
// # Design Principles
//
//  1. **Integer money**: prices and balances are int64 in the smallest currency unit
//  2. **Snapshots over references**: orders copy item name and price so later menu
//     edits never change what someone owes
//  3. **Names as identity**: users are keyed by a normalized form of their display name;
//     there is no registration step
//  4. **Avoid circular references**: relationships use name/ID strings, never pointers
package models
