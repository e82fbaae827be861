// Command glint indexes NTFS volumes via the USN change journal and
// serves fast name/path search over the resulting catalog.
package main

func main() {
	Execute()
}
