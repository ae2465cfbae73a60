// The dailytasks package keeps a daily task list and a weekly focus (one label per day of the week), persists
// them locally, and mirrors them to a single file in a GitHub gist, tasks.json, as documented at
// https://docs.github.com/en/rest/gists.
//
// State holds the data in memory and notifies subscribers of every change. Store persists documents and sync
// credentials through a Backend, either files in a directory (FileBackend) or the sqlitestore subpackage;
// every value is written with a checksum, so that corruption is detected on load rather than silently
// propagated. Client is the gist client: its only two methods making remote calls are Pull and Push.
//
// Coordinator ties the three together: changes are saved locally first, then pushed in the background, one
// remote call at a time, with changes made in the meantime coalesced into a single push of the latest data.
// Lists are small, so lookups and searches scan through all tasks.
package dailytasks // import "github.com/nicolagi/dailytasks"
