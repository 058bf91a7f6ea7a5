package scanner

const (
	VoornaamHTML = `<!DOCTYPE html>
<html>
<head><title>Aanvraag verblijfsvergunning</title></head>
<body>
	<h1>Aanvraag</h1>
	<form id="aanvraag">
		<label for="voornaam">Voornaam</label>
		<input id="voornaam" type="text" name="voornaam" required />
	</form>
</body>
</html>`

	LabelOrderHTML = `<!DOCTYPE html>
<html>
<body>
	<form>
		<label for="a">From for</label>
		<label>Ancestor <input id="a" name="a" aria-label="From aria" /></label>

		<label>Wrapped <select id="b" name="b"><option value="nl">Nederland</option></select></label>

		<input id="c" name="c" aria-label="  Aria   label " />

		<span>Sibling text</span><input id="d" name="d" />

		<div>Not a label</div><input id="e" name="e" />
	</form>
</body>
</html>`

	MixedHTML = `<!DOCTYPE html>
<html>
<head><title>Mixed</title></head>
<body>
	<h1>Top</h1>
	<h2>Section <em>two</em></h2>
	<script>var secret = "do not read";</script>
	<p>Please fill in the form below.</p>
	<form>
		<input type="hidden" name="csrf" value="xyz" />
		<input name="plain" />
		<input type="password" id="pw" name="pw" value="hunter2" />
		<input type="checkbox" id="agree" name="agree" checked />
		<select id="land" name="land">
			<option value="nl">Nederland</option>
			<option value="be" selected>België</option>
		</select>
		<textarea id="notes" name="notes">Some notes</textarea>
		<button type="submit">Send</button>
		<input type="submit" value="Go" />
	</form>
	<form>
		<input id="dup" name="first" />
		<input id="dup" name="second" />
	</form>
	<input id="search" placeholder="Zoeken" aria-required="true" />
	<input name="loose" />
</body>
</html>`
)
