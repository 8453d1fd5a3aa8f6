// Package shutdown collects shutdown milestones from the user log while a
// reboot is in progress.
//
// Event times are relative to the first shutdown event seen. An event named
// <Name>Done or <Name>Timeout closes <Name> and yields <Name>Duration. A
// Timeout, or a configured limit being reached, saves the whole captured log
// to the output directory.
package shutdown
