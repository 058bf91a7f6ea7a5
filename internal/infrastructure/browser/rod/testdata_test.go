package rod

const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<head><title>Aanvraag</title></head>
<body>
	<form id="testForm">
		<label for="voornaam">Voornaam</label>
		<input id="voornaam" type="text" name="voornaam" />
		<input type="text" name="achternaam" />
		<input type="text" />
		<input id="password" type="password" name="password" />
		<select id="land"><option value="nl">Nederland</option><option value="be">België</option></select>
		<input id="agree" type="checkbox" />
		<div id="box"></div>
	</form>
	<textarea class="notes"></textarea>
	<div id="events"></div>
	<script>
		const log = document.getElementById('events');
		document.querySelectorAll('input, select, textarea').forEach(el => {
			['input', 'change'].forEach(type => el.addEventListener(type, () => {
				log.textContent += type + ':' + (el.id || el.name || el.className) + ' ';
			}));
		});
	</script>
</body>
</html>`
)
