/*
Package command implements the bot's slash commands and button handlers on top of go-sarah.

Each command runs the same pipeline: input validation, access policy, denylist, cooldown,
the Bags API call, session bookkeeping and finally the reply. Multi-step flows keep their
intermediate state in session stores: a quote lives until it is swapped or expires, and a
launch draft moves from confirmation to wallet collection to a built transaction.

No command ever signs or submits a transaction. Builders return an unsigned payload together
with a link to an external signer.
*/
package command
