// Command streamscout serves and queries normalized entertainment metadata.
package main

func main() {
	Execute()
}
