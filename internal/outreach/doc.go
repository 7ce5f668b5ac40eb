// Package outreach implements the campaign send pipeline.
//
// A send loads a campaign with its sequence steps and PENDING prospects,
// renders the first step for every prospect with a valid address, and hands
// the batch to a Dispatcher. The Dispatcher delivers one message at a time
// through a Channel, pausing between messages, and reports one Outcome per
// message in submission order. The Service then records the results in a
// single transaction: the campaign becomes ACTIVE and every successfully
// reached prospect becomes contacted with one email_sent Interaction.
//
// Channels wrap mailer.Sender implementations. A Selector prefers the
// campaign owner's connected mailbox (Gmail or Outlook) and falls back to the
// transactional relay for each message the mailbox fails to deliver.
package outreach
