/*
Package protocol holds the Aries protocol state machines. Each machine is a
value which the host persists and drives: a transition takes the old value
and returns the new one. The machines read their messages from the mailbox of
the pairwise agent and send thru the same agent. The message types themselves
are in the std packages.

The helpers of this package are shared by the machines: the mailbox selection
and the problem report access.
*/
package protocol
